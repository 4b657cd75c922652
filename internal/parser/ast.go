package parser

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/sokinpui/patchcheck/model"
)

// CodeBlock represents a parsed code block from markdown content.
type CodeBlock struct {
	// Hint is the content of the paragraph immediately preceding the code block.
	Hint string
	// Lang is the language identifier of the code block (e.g., "diff").
	Lang string
	// Content is the raw text inside the code block.
	Content string
}

// ExtractCodeBlocks uses a markdown AST to find all fenced code blocks
// and their preceding paragraph, which is treated as a hint.
func ExtractCodeBlocks(source []byte) ([]CodeBlock, error) {
	var blocks []CodeBlock
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	walker := func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		fenced, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		var block CodeBlock
		if fenced.Info != nil {
			if fields := strings.Fields(string(fenced.Info.Text(source))); len(fields) > 0 {
				block.Lang = strings.ToLower(fields[0])
			}
		}

		var content bytes.Buffer
		lines := fenced.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			content.Write(line.Value(source))
		}
		block.Content = content.String()

		if prev := fenced.PreviousSibling(); prev != nil {
			if p, ok := prev.(*ast.Paragraph); ok {
				block.Hint = strings.TrimSpace(string(p.Text(source)))
			}
		}

		blocks = append(blocks, block)
		return ast.WalkSkipChildren, nil
	}

	if err := ast.Walk(root, walker); err != nil {
		return nil, err
	}

	return blocks, nil
}

// ExtractDiffBlocks returns the fenced blocks tagged diff or patch.
func ExtractDiffBlocks(source []byte) ([]CodeBlock, error) {
	blocks, err := ExtractCodeBlocks(source)
	if err != nil {
		return nil, err
	}
	var diffs []CodeBlock
	for _, block := range blocks {
		if block.Lang == "diff" || block.Lang == "patch" {
			diffs = append(diffs, block)
		}
	}
	return diffs, nil
}

// ParseMarkdown parses every diff block of a markdown document. Each block's
// hint paragraph titles the patches that carry no title of their own.
func ParseMarkdown(source []byte, parse func(string) ([]model.Patch, error)) ([]model.Patch, error) {
	blocks, err := ExtractDiffBlocks(source)
	if err != nil {
		return nil, err
	}

	var patches []model.Patch
	for i, block := range blocks {
		parsed, err := parse(block.Content)
		if err != nil {
			return nil, &BlockError{Index: i + 1, Hint: block.Hint, Err: err}
		}
		for _, patch := range parsed {
			if patch.Title == "" {
				patch.Title = block.Hint
			}
			patches = append(patches, patch)
		}
	}
	return patches, nil
}
