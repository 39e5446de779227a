// Package errors provides the classified error primitives used across hxshowcase.
//
// Key features:
//   - ErrorCategory: broad classification (config, validation, style, storage, ...)
//   - ErrorSeverity: impact level (fatal, error, warning, info)
//   - RetryStrategy: whether a caller may retry
//   - ClassifiedError: structured error with category, severity and context
//   - ErrorBuilder: fluent API for creating classified errors
//   - HTTP and CLI adapters for error presentation
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryStyle, "content glob matched no files").
//		WithContext("target", "views").
//		WithContext("glob", "./static/views/**/*.html").
//		Build()
package errors
