// Package model contains the template-level representation of a business
// process: the Template aggregate, its ordered Steps and the declarative
// FieldSpec form schema attached to each step.
//
// Runtime state of an in-flight process lives in runtime/execution; this
// package only describes what a process looks like before it is started.
package model
