package provider

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/damianoneill/go-appconfig/pkg/domain/schema"
	"github.com/damianoneill/go-appconfig/pkg/domain/settings"
)

// SectionHandlerType is the handler type registered in configSections for
// every section other than appSettings.
const SectionHandlerType = "System.Configuration.NameValueSectionHandler,System,Version=1.0.3300.0, Culture=neutral, PublicKeyToken=b77a5c561934e089"

const (
	rootTag           = "configuration"
	configSectionsTag = "configSections"
	sectionTag        = "section"
	addTag            = "add"
)

// openDocument parses the external config file. It returns nil without an
// error when the file does not exist or is blank.
func (p *ConfigFileProvider) openDocument(op string) (*etree.Document, error) {
	path := p.opts.ConfigFile

	data, exists, err := readFile(path)
	if err != nil {
		return nil, settings.NewStoreError(op, path, settings.ErrStoreUnavailable, err)
	}
	if !exists || len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, settings.NewStoreError(op, path, settings.ErrMalformedStore, err)
	}
	if doc.Root() == nil {
		return nil, settings.NewStoreError(op, path, settings.ErrMalformedStore, fmt.Errorf("no root element"))
	}
	return doc, nil
}

func (p *ConfigFileProvider) loadDocument() (lookupFunc, error) {
	doc, err := p.openDocument("read")
	if err != nil {
		return nil, err
	}

	values := make(map[string]string)
	if doc != nil {
		root := doc.Root()
		if sec := childElement(root, p.opts.Section); sec != nil {
			for _, add := range childElements(sec, addTag) {
				key := add.SelectAttrValue("key", "")
				if key == "" {
					continue
				}
				// first entry wins
				if _, dup := values[strings.ToLower(key)]; !dup {
					values[strings.ToLower(key)] = add.SelectAttrValue("value", "")
				}
			}
		}
	}

	return func(key string) (string, bool) {
		v, ok := values[strings.ToLower(key)]
		return v, ok
	}, nil
}

// writeDocument updates the section in place, leaving every other node of
// the document as it was. A malformed document is never replaced.
func (p *ConfigFileProvider) writeDocument(s *schema.Schema, records []record) error {
	path := p.opts.ConfigFile

	doc, err := p.openDocument("write")
	if err != nil {
		return err
	}
	if doc == nil {
		doc = newDocument()
	}
	root := doc.Root()

	if p.opts.Section != settings.DefaultSection {
		registerSection(root, p.opts.Section)
	}
	sec := childElement(root, p.opts.Section)
	if sec == nil {
		sec = root.CreateElement(qualify(root, p.opts.Section))
	}

	for _, r := range records {
		if !r.list {
			setValue(root, sec, r.key, r.values[0])
			continue
		}
		for i, val := range r.values {
			setValue(root, sec, numberedKey(r.key, i+1), val)
		}
		for _, add := range childElements(sec, addTag) {
			if staleIndex(s, r.key, add.SelectAttrValue("key", ""), len(r.values)) {
				sec.RemoveChild(add)
			}
		}
	}

	doc.Indent(2)
	err = writeAtomic(path, func(tmp string) error {
		return doc.WriteToFile(tmp)
	})
	if err != nil {
		return settings.NewStoreError("write", path, settings.ErrStoreUnavailable, err)
	}
	return nil
}

func newDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	doc.CreateElement(rootTag)
	return doc
}

// registerSection adds a section declaration to configSections, creating
// configSections as the root's first child element when needed.
func registerSection(root *etree.Element, name string) {
	cs := childElement(root, configSectionsTag)
	if cs == nil {
		cs = etree.NewElement(qualify(root, configSectionsTag))
		root.InsertChildAt(0, cs)
	} else if first := root.ChildElements(); first[0] != cs {
		root.RemoveChild(cs)
		root.InsertChildAt(0, cs)
	}

	for _, decl := range childElements(cs, sectionTag) {
		if strings.EqualFold(decl.SelectAttrValue("name", ""), name) {
			return
		}
	}
	decl := cs.CreateElement(qualify(root, sectionTag))
	decl.CreateAttr("name", name)
	decl.CreateAttr("type", SectionHandlerType)
	decl.CreateAttr("requirePermission", "false")
}

// setValue updates the value of the add element for key or appends one.
func setValue(root, sec *etree.Element, key, value string) {
	for _, add := range childElements(sec, addTag) {
		if strings.EqualFold(add.SelectAttrValue("key", ""), key) {
			add.CreateAttr("value", value)
			return
		}
	}
	add := sec.CreateElement(qualify(root, addTag))
	add.CreateAttr("key", key)
	add.CreateAttr("value", value)
}

// childElement finds the first child with the local name tag in the
// parent's namespace. Matching on the resolved namespace URI makes
// documents with and without a default xmlns behave the same.
func childElement(parent *etree.Element, tag string) *etree.Element {
	ns := parent.NamespaceURI()
	for _, c := range parent.ChildElements() {
		if c.Tag == tag && c.NamespaceURI() == ns {
			return c
		}
	}
	return nil
}

func childElements(parent *etree.Element, tag string) []*etree.Element {
	ns := parent.NamespaceURI()
	var out []*etree.Element
	for _, c := range parent.ChildElements() {
		if c.Tag == tag && c.NamespaceURI() == ns {
			out = append(out, c)
		}
	}
	return out
}

// qualify prefixes tag with the root's namespace prefix, if it has one.
func qualify(root *etree.Element, tag string) string {
	if root.Space == "" {
		return tag
	}
	return root.Space + ":" + tag
}
