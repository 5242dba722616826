package tools

import (
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// Catalog holds every available tool. It is built once and is read-only
// afterwards, so it can be shared between requests without locking.
type Catalog struct {
	order   []string
	tools   map[string]Descriptor
	openAI  []openai.Tool
	summary []Info
}

// NewCatalog registers descriptors in order. Identifiers must be unique and
// non-empty, every tool needs an execute function and schema defaults must
// satisfy their own fields.
func NewCatalog(descriptors ...Descriptor) (*Catalog, error) {
	c := &Catalog{
		tools: make(map[string]Descriptor, len(descriptors)),
	}
	for _, d := range descriptors {
		if err := c.register(d); err != nil {
			return nil, err
		}
	}

	c.openAI = make([]openai.Tool, 0, len(c.order))
	c.summary = make([]Info, 0, len(c.order))
	for _, id := range c.order {
		d := c.tools[id]
		c.openAI = append(c.openAI, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.ID,
				Description: d.Description,
				Parameters:  d.Schema.JSONSchema(),
			},
		})
		c.summary = append(c.summary, Info{Name: d.ID, Description: d.Description})
	}
	return c, nil
}

// register adds a tool during construction. There is no way to call it on a
// built catalog.
func (c *Catalog) register(d Descriptor) error {
	if d.ID == "" {
		return fmt.Errorf("tool without an identifier")
	}
	if _, exists := c.tools[d.ID]; exists {
		return fmt.Errorf("tool %q registered twice", d.ID)
	}
	if d.Execute == nil {
		return fmt.Errorf("tool %q has no execute function", d.ID)
	}
	if err := d.Schema.validateDefaults(); err != nil {
		return fmt.Errorf("tool %q: %w", d.ID, err)
	}
	d.Schema.Fields = append([]Field(nil), d.Schema.Fields...)
	c.tools[d.ID] = d
	c.order = append(c.order, d.ID)
	return nil
}

// Lookup returns the descriptor registered under id.
func (c *Catalog) Lookup(id string) (Descriptor, bool) {
	d, ok := c.tools[id]
	return d, ok
}

// List returns the name and description of every tool in registration order.
func (c *Catalog) List() []Info {
	return append([]Info(nil), c.summary...)
}

// IDs returns tool identifiers in registration order.
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.order...)
}

// Len returns the number of registered tools.
func (c *Catalog) Len() int {
	return len(c.order)
}

// OpenAITools returns the catalog as OpenAI tool definitions.
func (c *Catalog) OpenAITools() []openai.Tool {
	return append([]openai.Tool(nil), c.openAI...)
}
