package caseboard

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
)

// RenderHTML produces the board fragment: the node and edge payload
// embedded as JSON for the client-side renderer, with a plain-text
// listing as fallback for clients without script.
func (b *Board) RenderHTML() string {
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Sprintf("<div class=\"case-board-error\">%s</div>", html.EscapeString(err.Error()))
	}

	var sb strings.Builder
	sb.WriteString("<div class=\"case-board\">\n")
	sb.WriteString("<script type=\"application/json\" class=\"case-board-data\">")
	// </script> inside a JSON string would terminate the block early.
	sb.WriteString(strings.ReplaceAll(string(payload), "</", "<\\/"))
	sb.WriteString("</script>\n")
	sb.WriteString("<noscript><pre class=\"case-board-text\">")
	sb.WriteString(html.EscapeString(b.RenderText()))
	sb.WriteString("</pre></noscript>\n")
	sb.WriteString("</div>")
	return sb.String()
}

// RenderText is the plain listing of the board.
func (b *Board) RenderText() string {
	var sb strings.Builder
	sb.WriteString("CASE BOARD\n")

	byType := make(map[string][]Node)
	var order []string
	for _, n := range b.Nodes {
		if _, seen := byType[n.Type]; !seen {
			order = append(order, n.Type)
		}
		byType[n.Type] = append(byType[n.Type], n)
	}
	for _, t := range order {
		fmt.Fprintf(&sb, "\n%s:\n", strings.ToUpper(t))
		for _, n := range byType[t] {
			fmt.Fprintf(&sb, "  %s %s - %s\n", n.Icon, n.Label, n.Desc)
		}
	}

	var contradictions []Edge
	for _, e := range b.Edges {
		if e.Kind == "contradiction" {
			contradictions = append(contradictions, e)
		}
	}
	if len(contradictions) > 0 {
		sb.WriteString("\nCONTRADICTION LINKS:\n")
		for _, e := range contradictions {
			fmt.Fprintf(&sb, "  %s -> %s\n", e.From, e.To)
		}
	}
	return sb.String()
}
