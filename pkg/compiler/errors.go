package compiler

import "github.com/ruby2js/ruby2go/pkg/compilererr"

// The four error-taxonomy kinds and the CompileError type live in
// pkg/compilererr so that pkg/rewrite/* filters can raise one without
// importing this package; Convert's callers see them re-exported here
// under their familiar names.
const (
	KindUnsupportedConstruct = compilererr.Unsupported
	KindMalformedAST         = compilererr.Malformed
	KindSecurityError        = compilererr.Security
	KindConfigurationError   = compilererr.Configuration
)

// CompileError is the structured error type returned by Convert.
type CompileError = compilererr.CompileError

// AsCompileError unwraps err into a *CompileError.
func AsCompileError(err error) (*CompileError, bool) {
	return compilererr.As(err)
}
