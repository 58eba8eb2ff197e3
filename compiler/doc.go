/*

Process of lowering

HIR Text ->
	parse ->
Abstract Syntax Tree (ast) ->
	front (morph: arguments binding, evaluation order) ->
Tree Form IR (ir statements) ->
	rationalize ->
Linear Form IR (ir block ranges) ->
	format ->
LIR Text

*/
package compiler
