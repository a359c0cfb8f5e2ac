// Package validator validates request structs and reports failures as a
// snake_case field to message map.
//
// Besides the go-playground built-ins it registers two tags: "username"
// (letters, digits, dot, underscore, hyphen) and "filename" (a single path
// segment without separators or leading dot).
package validator
