package gee

import (
	"fmt"
	"strings"
)

// node 是前缀树的一层。静态段精确匹配；":name" 匹配一段；"*name" 吞掉剩余路径。
type node struct {
	pattern  string // 完整路由，只有路由终点才非空，如 /short/:id
	part     string // 本层的段，如 :id
	children []*node
	isWild   bool
}

func isWildPart(part string) bool {
	return part != "" && (part[0] == ':' || part[0] == '*')
}

func (n *node) child(part string) *node {
	for _, c := range n.children {
		if c.part == part {
			return c
		}
	}
	return nil
}

// candidates 返回能匹配 part 的子节点，静态段排在参数段前面。
func (n *node) candidates(part string) []*node {
	out := make([]*node, 0, len(n.children))
	for _, c := range n.children {
		if !c.isWild && c.part == part {
			out = append(out, c)
		}
	}
	for _, c := range n.children {
		if c.isWild {
			out = append(out, c)
		}
	}
	return out
}

// insert 注册 pattern。同一位置出现不同名字的参数段（/short/:id 和
// /short/:code）或者重复注册都会 panic，启动时就暴露路由冲突。
func (n *node) insert(pattern string, parts []string, height int) {
	if len(parts) == height {
		if n.pattern != "" {
			panic(fmt.Sprintf("gee: route %s conflicts with %s", pattern, n.pattern))
		}
		n.pattern = pattern
		return
	}
	part := parts[height]
	c := n.child(part)
	if c == nil {
		if isWildPart(part) {
			for _, sibling := range n.children {
				if sibling.isWild {
					panic(fmt.Sprintf("gee: wildcard %s in %s conflicts with %s", part, pattern, sibling.part))
				}
			}
		}
		c = &node{part: part, isWild: isWildPart(part)}
		n.children = append(n.children, c)
	}
	c.insert(pattern, parts, height+1)
}

func (n *node) search(parts []string, height int) *node {
	if len(parts) == height || strings.HasPrefix(n.part, "*") {
		if n.pattern == "" {
			return nil
		}
		return n
	}
	for _, c := range n.candidates(parts[height]) {
		if found := c.search(parts, height+1); found != nil {
			return found
		}
	}
	return nil
}

// walk 按注册顺序深度优先访问所有路由终点。
func (n *node) walk(fn func(pattern string)) {
	if n.pattern != "" {
		fn(n.pattern)
	}
	for _, c := range n.children {
		c.walk(fn)
	}
}
