package run

// Bundled CA roots let wss:// ring channels and TLS brokers verify their peers
// when the binaries run in containers without a system certificate store.
import _ "golang.org/x/crypto/x509roots/fallback"
