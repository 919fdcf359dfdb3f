package telegram

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// с запасом на теги, которые придётся закрыть и открыть заново
const maxMessageLen = 4096 - 128

// toTelegramHTML переводит markdown ответа в то подмножество HTML, которое понимает Telegram
func toTelegramHTML(md string) string {
	ext := parser.HardLineBreak | parser.NoEmptyLineBeforeBlock | parser.NoIntraEmphasis |
		parser.FencedCode | parser.Strikethrough | parser.SpaceHeadings | parser.BackslashLineBreak
	doc := parser.NewWithExtensions(ext).Parse([]byte(md))

	var buf bytes.Buffer
	r := &tgRenderer{}
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		return r.renderNode(&buf, node, entering)
	})
	return strings.Trim(buf.String(), "\n")
}

type tgRenderer struct{}

func (r *tgRenderer) renderNode(w io.Writer, node ast.Node, entering bool) ast.WalkStatus {
	switch n := node.(type) {
	case *ast.Document, *ast.List:
	case *ast.Paragraph:
		// абзацы внутри пунктов списка идут без пустых строк
		if _, inItem := node.GetParent().(*ast.ListItem); !inItem {
			io.WriteString(w, "\n")
		}
	case *ast.Text:
		html.EscapeHTML(w, n.Literal)
	case *ast.Softbreak, *ast.Hardbreak:
		io.WriteString(w, "\n")
	case *ast.Heading:
		if entering {
			io.WriteString(w, "\n<b>")
		} else {
			io.WriteString(w, "</b>\n")
		}
	case *ast.Strong:
		tag(w, entering, "b")
	case *ast.Emph:
		tag(w, entering, "i")
	case *ast.Del:
		tag(w, entering, "s")
	case *ast.Code:
		io.WriteString(w, "<code>")
		html.EscapeHTML(w, n.Literal)
		io.WriteString(w, "</code>")
	case *ast.Link:
		if entering {
			io.WriteString(w, `<a href="`)
			html.EscLink(w, n.Destination)
			io.WriteString(w, `">`)
		} else {
			io.WriteString(w, "</a>")
		}
	case *ast.Image:
		// картинки Telegram в тексте не показывает, оставляем ссылку
		if entering {
			io.WriteString(w, `<a href="`)
			html.EscLink(w, n.Destination)
			io.WriteString(w, `">`)
			if len(n.GetChildren()) == 0 {
				html.EscapeHTML(w, n.Destination)
			}
		} else {
			io.WriteString(w, "</a>")
		}
	case *ast.BlockQuote:
		tag(w, entering, "blockquote")
	case *ast.HorizontalRule:
		io.WriteString(w, "\n------\n")
	case *ast.CodeBlock:
		io.WriteString(w, "\n")
		if lang := codeLang(n.Info); lang != "" {
			fmt.Fprintf(w, `<pre><code class="language-%s">`, lang)
		} else {
			io.WriteString(w, "<pre><code>")
		}
		html.EscapeHTML(w, n.Literal)
		io.WriteString(w, "</code></pre>\n")
	case *ast.ListItem:
		if entering {
			io.WriteString(w, "\n")
			io.WriteString(w, bullet(n))
		}
	case *ast.HTMLSpan:
		html.EscapeHTML(w, n.Literal)
	case *ast.HTMLBlock:
		io.WriteString(w, "\n<code>")
		html.EscapeHTML(w, n.Literal)
		io.WriteString(w, "</code>\n")
	default:
		return ast.SkipChildren
	}
	return ast.GoToNext
}

// codeLang оставляет от info-строки блока кода только имя языка
func codeLang(info []byte) string {
	f := bytes.Fields(info)
	if len(f) == 0 {
		return ""
	}
	lang := bytes.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '+' || r == '-' {
			return r
		}
		return -1
	}, f[0])
	return string(lang)
}

func tag(w io.Writer, entering bool, name string) {
	if entering {
		io.WriteString(w, "<"+name+">")
	} else {
		io.WriteString(w, "</"+name+">")
	}
}

func bullet(item *ast.ListItem) string {
	b := " - "
	list, ok := item.GetParent().(*ast.List)
	if !ok {
		return b
	}
	if list.ListFlags&ast.ListTypeOrdered != 0 {
		start := max(list.Start, 1)
		for i, child := range list.GetChildren() {
			if child == item {
				b = fmt.Sprintf("%d. ", start+i)
				break
			}
		}
	}
	// вложенный список
	for p := list.GetParent(); p != nil; p = p.GetParent() {
		if _, ok := p.(*ast.ListItem); ok {
			b = "  " + b
		}
	}
	return b
}

// splitMessage режет HTML на части не длиннее limit по границам строк;
// открытые на границе теги закрываются и открываются в следующей части.
func splitMessage(text string, limit int) []string {
	var (
		parts []string
		cur   strings.Builder
		open  []string // целиком, вместе с атрибутами
	)

	flush := func() {
		if strings.TrimSpace(cur.String()) == "" {
			cur.Reset()
			return
		}
		for i := len(open) - 1; i >= 0; i-- {
			cur.WriteString("</" + tagName(open[i]) + ">")
		}
		parts = append(parts, strings.TrimRight(cur.String(), "\n"))
		cur.Reset()
		for _, t := range open {
			cur.WriteString(t)
		}
	}

	for _, line := range strings.Split(text, "\n") {
		for _, piece := range hardWrap(line, limit/2) {
			if cur.Len()+len(piece)+1 > limit {
				flush()
			}
			cur.WriteString(piece)
			cur.WriteByte('\n')
			open = trackTags(open, piece)
		}
	}
	if cur.Len() > 0 {
		flush()
	}
	return parts
}

// hardWrap режет слишком длинную строку по символам
func hardWrap(line string, n int) []string {
	if len(line) <= n {
		return []string{line}
	}
	var out []string
	for len(line) > n {
		cut := n
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		// не режем посреди тега
		if lt := strings.LastIndexByte(line[:cut], '<'); lt > 0 && strings.IndexByte(line[lt:cut], '>') == -1 {
			cut = lt
		}
		out = append(out, line[:cut])
		line = line[cut:]
	}
	return append(out, line)
}

func trackTags(open []string, line string) []string {
	for i := 0; i < len(line); {
		lt := strings.IndexByte(line[i:], '<')
		if lt == -1 {
			break
		}
		lt += i
		gt := strings.IndexByte(line[lt:], '>')
		if gt == -1 {
			break
		}
		gt += lt
		t := line[lt : gt+1]
		switch {
		case strings.HasPrefix(t, "</"):
			name := tagName(t)
			if len(open) > 0 && tagName(open[len(open)-1]) == name {
				open = open[:len(open)-1]
			}
		case !strings.HasSuffix(t, "/>"):
			open = append(open, t)
		}
		i = gt + 1
	}
	return open
}

func tagName(t string) string {
	t = strings.Trim(t, "</>")
	if f := strings.Fields(t); len(f) > 0 {
		return f[0]
	}
	return t
}
