package jobxml

import (
	"embed"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"golang.org/x/net/html/charset"
)

// DefaultTemplate is the name of the built-in freestyle job template
const DefaultTemplate = "job.xml"

//go:embed templates/*.xml
var templates embed.FS

// Templates returns the built-in templates
func Templates() fs.FS {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// LoadTemplate reads name from fsys and parses it
func LoadTemplate(fsys fs.FS, name string) (*Node, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
		}
		return nil, fmt.Errorf("failed to read template %s: %w", name, err)
	}

	root, err := ParseNode(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	return root, nil
}

// ParseNode parses an XML document into a Node tree. Namespace prefixes are
// kept as written. Comments and processing instructions are dropped, as is
// whitespace between elements.
func ParseNode(doc string) (*Node, error) {
	dec := xml.NewDecoder(strings.NewReader(stripDeclaration(doc)))
	dec.CharsetReader = charset.NewReaderLabel

	var (
		stack []*Node
		root  *Node
	)
	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := NewNode(qualified(t.Name))
			for _, a := range t.Attr {
				n.Attrs = append(n.Attrs, Attr{Name: qualified(a.Name), Value: a.Value})
			}
			if len(stack) > 0 {
				stack[len(stack)-1].Append(n)
			} else if root == nil {
				root = n
			}
			stack = append(stack, n)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unexpected end element </%s>", qualified(t.Name))
			}
			n := stack[len(stack)-1]
			if n.Tag != qualified(t.Name) {
				return nil, fmt.Errorf("element <%s> closed by </%s>", n.Tag, qualified(t.Name))
			}
			if len(n.Children) > 0 {
				n.Text = ""
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("unclosed element <%s>", stack[len(stack)-1].Tag)
	}
	if root == nil {
		return nil, errors.New("no root element")
	}
	if strings.TrimSpace(root.Text) == "" {
		root.Text = ""
	}
	return root, nil
}

// stripDeclaration drops a leading XML declaration. encoding/xml rejects
// version 1.1, which the build server writes.
func stripDeclaration(doc string) string {
	trimmed := strings.TrimLeft(doc, " \t\r\n\ufeff")
	if !strings.HasPrefix(trimmed, "<?xml") {
		return doc
	}
	end := strings.Index(trimmed, "?>")
	if end < 0 {
		return doc
	}
	return trimmed[end+2:]
}

func qualified(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}
