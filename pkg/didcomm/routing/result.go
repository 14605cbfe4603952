/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package routing

import (
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packer"
)

// Node is one forward message. Its children forward it further, a leaf is what gets sent.
type Node struct {
	FinalRecipient string
	// Next is the DID or kid the forward is addressed to in its body.
	Next string
	// To lists the mediator keys and DID the forward is encrypted for.
	To        []string
	Encrypted *packer.Result

	parent   int
	children []int
}

// Forward is a forward message ready to be sent.
type Forward struct {
	FinalRecipient string
	// RoutedBy lists the To entries of every hop, outermost first.
	RoutedBy []string
	Message  *packer.Result
}

// Result is the forest of forward messages built by PackRouting.
type Result struct {
	nodes []Node
	roots []int
}

func (r *Result) add(n Node, parent int) int {
	idx := len(r.nodes)
	n.parent = parent

	r.nodes = append(r.nodes, n)

	if parent != noParent {
		r.nodes[parent].children = append(r.nodes[parent].children, idx)
	}

	return idx
}

// Roots returns the forwards wrapping the packed message directly.
func (r *Result) Roots() []*Node {
	return r.byIndex(r.roots)
}

// Children returns the forwards wrapping n.
func (r *Result) Children(n *Node) []*Node {
	return r.byIndex(n.children)
}

func (r *Result) byIndex(idx []int) []*Node {
	nodes := make([]*Node, 0, len(idx))
	for _, i := range idx {
		nodes = append(nodes, &r.nodes[i])
	}

	return nodes
}

// ForwardMessages returns the leaves of the forest, one per route, in discovery order.
func (r *Result) ForwardMessages() []Forward {
	var forwards []Forward

	for _, root := range r.roots {
		for _, leaf := range r.leaves(root) {
			var routedBy []string

			for i := leaf; i != noParent; i = r.nodes[i].parent {
				routedBy = append(routedBy, r.nodes[i].To...)
			}

			forwards = append(forwards, Forward{
				FinalRecipient: r.nodes[leaf].FinalRecipient,
				RoutedBy:       routedBy,
				Message:        r.nodes[leaf].Encrypted,
			})
		}
	}

	return forwards
}

func (r *Result) leaves(idx int) []int {
	if len(r.nodes[idx].children) == 0 {
		return []int{idx}
	}

	var result []int
	for _, c := range r.nodes[idx].children {
		result = append(result, r.leaves(c)...)
	}

	return result
}
