// Package awssdk builds AWS SDK for Go v2 clients from the settings resolved
// by awsx.Resolver and keeps them in a Registry, one client per service key.
package awssdk
