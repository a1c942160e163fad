// Package jobxml builds freestyle job configuration documents for the
// build server's createItem endpoint.
package jobxml

import (
	"fmt"
	"io/fs"
	"strconv"
)

// XMLDeclaration prefixes every rendered document
const XMLDeclaration = "<?xml version='1.1' encoding='UTF-8'?>"

const (
	GroovyPluginVersion         = "2.1"
	ScriptSecurityPluginVersion = "1.51"

	rootTag                   = "project"
	shellTag                  = "hudson.tasks.Shell"
	groovyTag                 = "hudson.plugins.groovy.Groovy"
	systemGroovyTag           = "hudson.plugins.groovy.SystemGroovy"
	parametersDefinitionTag   = "hudson.model.ParametersDefinitionProperty"
	parameterDefinitionsTag   = "parameterDefinitions"
	stringParameterDefinition = "hudson.model.StringParameterDefinition"
)

// builderGroup holds builder entries sharing one element name
type builderGroup struct {
	tag     string
	entries []*Node
}

// Document is a job configuration under construction. It is not safe for
// concurrent use.
type Document struct {
	template     *Node
	groups       []*builderGroup
	parameters   []*Node
	token        *string
	systemGroovy bool
}

// New creates a document from the built-in freestyle template
func New() (*Document, error) {
	return NewFromTemplate(Templates(), DefaultTemplate)
}

// NewFromTemplate creates a document from template name in fsys
func NewFromTemplate(fsys fs.FS, name string) (*Document, error) {
	root, err := LoadTemplate(fsys, name)
	if err != nil {
		return nil, err
	}
	return newDocument(root)
}

// Parse creates a document from a template given as text
func Parse(template string) (*Document, error) {
	root, err := ParseNode(template)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}
	return newDocument(root)
}

func newDocument(root *Node) (*Document, error) {
	if root.Tag != rootTag {
		return nil, fmt.Errorf("%w: root element is %q, want %q", ErrInvalidTemplate, root.Tag, rootTag)
	}
	return &Document{template: root}, nil
}

// AddJobToken sets the token that authorizes remote build triggers
func (d *Document) AddJobToken(token string) *Document {
	d.token = &token
	return d
}

// AddBashScript appends a shell build step
func (d *Document) AddBashScript(script string) *Document {
	g := d.group(shellTag)
	g.entries = append(g.entries, NewNode(shellTag).Append(TextNode("command", script)))
	return d
}

// AddGroovyScript appends a Groovy build step
func (d *Document) AddGroovyScript(script string) *Document {
	step := NewNode(groovyTag, pluginAttr("groovy", GroovyPluginVersion)).Append(
		TextNode("scriptParameters", ""),
		TextNode("javaOpts", ""),
		NewNode("scriptSource", Attr{Name: "class", Value: "hudson.plugins.groovy.StringScriptSource"}).
			Append(TextNode("command", script)),
		TextNode("classPath", ""),
		TextNode("groovyName", "(Default)"),
		TextNode("parameters", ""),
		TextNode("properties", ""),
	)

	g := d.group(groovyTag)
	g.entries = append(g.entries, step)
	return d
}

// AddSystemGroovyScript adds the job's system Groovy step. A job holds at
// most one; a second call returns ErrDuplicateSystemScript.
func (d *Document) AddSystemGroovyScript(script string, sandbox bool) error {
	if d.systemGroovy {
		return ErrDuplicateSystemScript
	}
	d.systemGroovy = true

	step := NewNode(systemGroovyTag, pluginAttr("groovy", GroovyPluginVersion)).Append(
		NewNode("source", Attr{Name: "class", Value: "hudson.plugins.groovy.StringSystemScriptSource"}).Append(
			NewNode("script", pluginAttr("script-security", ScriptSecurityPluginVersion)).Append(
				TextNode("script", script),
				TextNode("sandbox", strconv.FormatBool(sandbox)),
			),
		),
	)

	g := d.group(systemGroovyTag)
	g.entries = append(g.entries, step)
	return nil
}

// AddBuildParameter declares a string build parameter.
// The trim flag is accepted but always written as false.
func (d *Document) AddBuildParameter(key, defaultValue, description string, trim bool) *Document {
	_ = trim

	d.parameters = append(d.parameters, NewNode(stringParameterDefinition).Append(
		TextNode("name", key),
		TextNode("description", description),
		TextNode("defaultValue", defaultValue),
		TextNode("trim", "false"),
	))
	return d
}

// AddPlainBuildParameter declares a string build parameter with no default
// and no description
func (d *Document) AddPlainBuildParameter(key string) *Document {
	return d.AddBuildParameter(key, "", "", false)
}

// Tree returns the merged document tree. The template is not modified, so
// Tree and Render may be called repeatedly.
func (d *Document) Tree() *Node {
	root := d.template.Clone()

	builders := NewNode("builders")
	for _, g := range d.groups {
		for _, e := range g.entries {
			builders.Append(e.Clone())
		}
	}
	root.SetChild(builders)

	properties := NewNode("properties")
	if len(d.parameters) > 0 {
		definitions := NewNode(parameterDefinitionsTag)
		for _, p := range d.parameters {
			definitions.Append(p.Clone())
		}
		properties.Append(NewNode(parametersDefinitionTag).Append(definitions))
	}
	root.SetChild(properties)

	if d.token != nil {
		root.SetChild(TextNode("authToken", *d.token))
	}
	return root
}

// Render serializes the document with its XML declaration
func (d *Document) Render() string {
	return XMLDeclaration + d.Tree().String()
}

// String is an alias for Render
func (d *Document) String() string {
	return d.Render()
}

// group returns the builder group for tag, creating it on first use
func (d *Document) group(tag string) *builderGroup {
	for _, g := range d.groups {
		if g.tag == tag {
			return g
		}
	}
	g := &builderGroup{tag: tag}
	d.groups = append(d.groups, g)
	return g
}

func pluginAttr(plugin, version string) Attr {
	return Attr{Name: "plugin", Value: plugin + "@" + version}
}
