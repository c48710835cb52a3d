// Package schema decodes messages dynamically from WIT type definitions.
//
// Generated stubs know their layouts statically. Tools that do not, such
// as dump utilities and debuggers, use a Walker to turn a message into a
// tree of Nodes using the same layout rules as layout.Calculator:
//
//	w := schema.NewWalker()
//	node, err := w.Walk(root, personType)
//	fmt.Print(node.String())
//
// Walking goes through message.Reader, so read limits and default tolerance
// apply as they do for stubs.
package schema
