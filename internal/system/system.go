// Package system holds the small pieces of host plumbing the device binary
// needs: console mode switching and the address the status page is reachable
// on.
package system

type logger interface {
	Infof(string, string, ...interface{})
	Errorf(string, string, ...interface{})
}
