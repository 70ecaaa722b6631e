// Package factory maps a supplier source to its concrete feed client.
package factory
