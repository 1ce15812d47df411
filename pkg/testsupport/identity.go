// Package testsupport provisions one disposable database per test class or
// test method.
package testsupport

import (
	"strings"
	"testing"
)

// DeriveIdentity names the database of a test class, or of one method of it
// when methodName is not empty. The same pair always gives the same
// identity. Nothing is escaped here; the builder rejects names the engine
// cannot use.
func DeriveIdentity(typeName, methodName string) string {
	if methodName == "" {
		return typeName
	}
	return typeName + "." + methodName
}

// TestIdentity derives the identity of the running test, using t.Name() as
// the method name. Subtest separators become dots.
func TestIdentity(t testing.TB, className string) string {
	return DeriveIdentity(className, strings.ReplaceAll(t.Name(), "/", "."))
}
