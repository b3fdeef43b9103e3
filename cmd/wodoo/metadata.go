package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wodoo-build/wodoo/internal/metadata"
	"github.com/wodoo-build/wodoo/internal/pkginfo"
)

func runMetadata(cmd *cobra.Command, args []string) error {
	dir, err := filepath.Abs(addonDir)
	if err != nil {
		return err
	}
	resolved, err := metadata.Resolve(dir, localVersion)
	if err != nil {
		return fmt.Errorf("resolving metadata: %w", err)
	}

	switch format {
	case "pkginfo":
		return pkginfo.NewEmitter(cmd.OutOrStdout()).Emit(resolved.Metadata)
	case "yaml":
		return emitYAML(cmd.OutOrStdout(), resolved)
	default:
		return fmt.Errorf("unknown format %q (want pkginfo or yaml)", format)
	}
}

// emitYAML writes the record as a YAML mapping in header order. Keys that
// occur more than once (Requires-Dist, Classifier) become sequences.
func emitYAML(w io.Writer, resolved *metadata.Resolved) error {
	md := resolved.Metadata

	headers := &yaml.Node{Kind: yaml.MappingNode}
	seen := make(map[string]bool)
	for _, h := range md.Headers {
		if seen[h.Key] {
			continue
		}
		seen[h.Key] = true

		key := &yaml.Node{Kind: yaml.ScalarNode, Value: h.Key}
		values := md.GetAll(h.Key)
		if len(values) == 1 {
			headers.Content = append(headers.Content, key, stringNode(values[0]))
			continue
		}
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, v := range values {
			seq.Content = append(seq.Content, stringNode(v))
		}
		headers.Content = append(headers.Content, key, seq)
	}

	doc := &yaml.Node{Kind: yaml.MappingNode}
	doc.Content = append(doc.Content,
		stringNode("provenance"), stringNode(resolved.Provenance.String()),
		stringNode("metadata"), headers,
	)
	if md.Body != "" {
		body := stringNode(md.Body)
		body.Style = yaml.LiteralStyle
		doc.Content = append(doc.Content, stringNode("description"), body)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func stringNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}
