// Package version carries the iotmarket build identity.
//
// Values are stamped at link time and fall back to the module's VCS
// settings when the binary was built from a checkout:
//
//	go build -ldflags "-X github.com/kbukum/iotmarket/version.Version=1.2.0" ./cmd/iotmarket
package version
