package deck

import (
	"encoding/xml"
	"strings"
)

// textTag is the namespace-stripped local name of the text-bearing element
// in DrawingML slide markup (<a:t>). Producers vary the namespace prefix,
// so matching happens on the local name only.
const textTag = "t"

// node is the parsed tree form of one slide's markup. encoding/xml drops
// namespace prefixes into Name.Space, leaving Name.Local prefix-free.
type node struct {
	XMLName  xml.Name
	Text     string `xml:",chardata"`
	Children []node `xml:",any"`
}

// harvestText parses slide markup and collects all text-bearing leaves in
// document order. Fragments join with single spaces; runs of whitespace
// collapse to one space; the result is trimmed.
func harvestText(markup []byte) string {
	var root node
	if err := xml.Unmarshal(markup, &root); err != nil {
		return ""
	}

	var fragments []string
	collectText(&root, &fragments)
	return collapseWhitespace(strings.Join(fragments, " "))
}

// collectText walks the tree depth-first, appending the character data of
// every text-bearing element to the accumulator.
func collectText(n *node, acc *[]string) {
	if n.XMLName.Local == textTag && n.Text != "" {
		*acc = append(*acc, n.Text)
	}
	for i := range n.Children {
		collectText(&n.Children[i], acc)
	}
}

// collapseWhitespace reduces any whitespace run to a single space and trims
// leading/trailing whitespace.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
