package render

import "text/template/parse"

// blankFunc ends every printing action so that a missing key or a nil value
// prints nothing. text/template would otherwise print "<no value>".
const blankFunc = "blank"

func blank(v any) any {
	if v == nil {
		return ""
	}
	return v
}

// blankMissing rewrites the printing actions in tree to pipe their result
// through blankFunc. Rewriting an already rewritten tree is a no-op.
func blankMissing(tree *parse.Tree) {
	if tree == nil {
		return
	}
	blankList(tree, tree.Root)
}

func blankList(tree *parse.Tree, list *parse.ListNode) {
	if list == nil {
		return
	}
	for _, n := range list.Nodes {
		switch n := n.(type) {
		case *parse.ActionNode:
			blankAction(tree, n)
		case *parse.IfNode:
			blankList(tree, n.List)
			blankList(tree, n.ElseList)
		case *parse.RangeNode:
			blankList(tree, n.List)
			blankList(tree, n.ElseList)
		case *parse.WithNode:
			blankList(tree, n.List)
			blankList(tree, n.ElseList)
		case *parse.ListNode:
			blankList(tree, n)
		}
	}
}

func blankAction(tree *parse.Tree, a *parse.ActionNode) {
	p := a.Pipe
	if p == nil || len(p.Decl) > 0 || len(p.Cmds) == 0 {
		return
	}
	last := p.Cmds[len(p.Cmds)-1]
	if len(last.Args) == 1 {
		if id, ok := last.Args[0].(*parse.IdentifierNode); ok && id.Ident == blankFunc {
			return
		}
	}
	id := parse.NewIdentifier(blankFunc).SetTree(tree).SetPos(a.Pos)
	p.Cmds = append(p.Cmds, &parse.CommandNode{NodeType: parse.NodeCommand, Pos: a.Pos, Args: []parse.Node{id}})
}
