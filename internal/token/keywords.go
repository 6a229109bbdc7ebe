package token

// blockKeywords open a named block with an indented body.
var blockKeywords = map[string]bool{
	"rule":       true,
	"checkpoint": true,
}

// hookKeywords open an unnamed lifecycle block.
var hookKeywords = map[string]bool{
	"onstart":   true,
	"onsuccess": true,
	"onerror":   true,
}

// keySpec describes how a parameter key lays out its content.
type keySpec struct {
	// list: comma-separated multi-valued content.
	list bool
	// host: the body is embedded host-language code.
	host bool
	// topLevel: allowed outside any block (a directive).
	topLevel bool
	// inBlock: allowed as a section key inside a block body.
	inBlock bool
}

var keys = map[string]keySpec{
	// Top-level directives, single-valued.
	"include":    {topLevel: true},
	"configfile": {topLevel: true},
	"workdir":    {topLevel: true},
	"report":     {topLevel: true},

	// Multi-valued section keys.
	"input":                {list: true, inBlock: true},
	"output":               {list: true, inBlock: true},
	"params":               {list: true, inBlock: true},
	"resources":            {list: true, inBlock: true},
	"log":                  {list: true, inBlock: true},
	"benchmark":            {list: true, inBlock: true},
	"wildcard_constraints": {list: true, inBlock: true},

	// Single-valued section keys.
	"threads":  {inBlock: true},
	"priority": {inBlock: true},
	"message":  {inBlock: true},
	"shell":    {inBlock: true},
	"script":   {inBlock: true},
	"wrapper":  {inBlock: true},
	"conda":    {inBlock: true},
	"group":    {inBlock: true},
	"shadow":   {inBlock: true},
	"retries":  {inBlock: true},
	"cache":    {inBlock: true},

	// Valid both as a directive and as a section key.
	"container": {topLevel: true, inBlock: true},

	// Embedded host-language body.
	"run": {host: true, inBlock: true},
}

// LookupKeyword classifies a leading identifier. Only exact lowercase
// spellings are recognized.
func LookupKeyword(word string) (Kind, bool) {
	switch {
	case blockKeywords[word]:
		return KwBlock, true
	case hookKeywords[word]:
		return KwHook, true
	default:
		if _, ok := keys[word]; ok {
			return Key, true
		}
	}
	return Invalid, false
}

// IsHook reports whether the word is a lifecycle hook keyword.
func IsHook(word string) bool {
	return hookKeywords[word]
}

// KeyTakesList reports whether the key holds a comma-separated value list.
func KeyTakesList(key string) bool {
	return keys[key].list
}

// KeyIsHost reports whether the key's body is embedded host-language code.
func KeyIsHost(key string) bool {
	return keys[key].host
}

// KeyAllowedTopLevel reports whether the key may appear outside any block.
func KeyAllowedTopLevel(key string) bool {
	return keys[key].topLevel
}

// KeyAllowedInBlock reports whether the key may appear as a section of a
// block body.
func KeyAllowedInBlock(key string) bool {
	return keys[key].inBlock
}
