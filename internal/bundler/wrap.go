package bundler

import "fmt"

// exportsRef is the identifier the merge entry assigns aggregated names to.
// It is never declared inside the bundle, so esbuild treats it as a global
// and keeps the entry an ES module; the header binds it to the wrapper's
// exports parameter.
const exportsRef = "__leappack_exports"

// header is everything esbuild emits before the bundled body: the banner,
// the namespace object, the opening of the isolating scope and the binding
// the merge entry writes through.
func header(opts Options) string {
	return fmt.Sprintf("%s\nconst %s = Object.create(null);\n(function (exports, %s) {\nvar %s = exports;",
		bannerComment(opts.Banner), opts.Namespace, opts.GlobalParam, exportsRef)
}

// footer closes the scope, invoking it with the namespace object and the
// host's `this`, then publishes the namespace on an ambient exports object
// when the host provides one. esbuild appends the final newline.
func footer(opts Options) string {
	return fmt.Sprintf("})(%s, this);\n%s", opts.Namespace, shim(opts.Namespace))
}

func shim(ns string) string {
	return fmt.Sprintf(`if (typeof exports === "object" && exports !== null) { exports.%s = %s; }`, ns, ns)
}
