package harness

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/metalagman/foreman/internal/model"
)

// functionInfo is one function_definition found in the parse tree.
type functionInfo struct {
	name       string
	annotated  bool
	documented bool
}

type codeAnalysis struct {
	parsed    bool
	syntaxOK  bool
	functions []functionInfo
}

// runChecks runs the full battery over the code. Every check runs even when
// an earlier one fails, so a failing attempt reports all its problems at
// once instead of one per retry.
func runChecks(ctx context.Context, code string) []model.CheckResult {
	checks := make([]model.CheckResult, 0, 4)

	hasCode := strings.TrimSpace(code) != ""
	checks = append(checks, checkResult("has_code", hasCode,
		"implementation contains code", "implementation is empty"))
	if !hasCode {
		// Nothing to parse; the remaining checks would only repeat the
		// same diagnosis.
		return checks
	}

	analysis := analyze(ctx, []byte(code))
	if !analysis.parsed {
		checks = append(checks, model.CheckResult{
			Name:    "syntax",
			Passed:  false,
			Message: "parser failure",
		})
		return checks
	}

	checks = append(checks, checkResult("syntax", analysis.syntaxOK,
		"syntax valid", "syntax errors detected"))
	checks = append(checks, checkAnnotations(analysis.functions))
	checks = append(checks, checkDocstrings(analysis.functions))
	return checks
}

// checkAnnotations passes when at least one function carries a parameter or
// return type annotation. Code with no functions passes vacuously.
func checkAnnotations(functions []functionInfo) model.CheckResult {
	if len(functions) == 0 {
		return model.CheckResult{
			Name:    "type_annotations",
			Passed:  true,
			Message: "no functions to annotate",
		}
	}
	var missing []string
	for _, fn := range functions {
		if !fn.annotated {
			missing = append(missing, fn.name)
		}
	}
	if len(missing) == len(functions) {
		return model.CheckResult{
			Name:    "type_annotations",
			Passed:  false,
			Message: "no type annotations found on functions: " + strings.Join(missing, ", "),
		}
	}
	return model.CheckResult{
		Name:    "type_annotations",
		Passed:  true,
		Message: fmt.Sprintf("%d of %d functions annotated", len(functions)-len(missing), len(functions)),
	}
}

// checkDocstrings passes when at least one function opens with a docstring,
// the same looseness the annotation check applies. Code with no functions
// passes vacuously.
func checkDocstrings(functions []functionInfo) model.CheckResult {
	if len(functions) == 0 {
		return model.CheckResult{
			Name:    "docstrings",
			Passed:  true,
			Message: "no functions to document",
		}
	}
	var missing []string
	for _, fn := range functions {
		if !fn.documented {
			missing = append(missing, fn.name)
		}
	}
	if len(missing) == len(functions) {
		return model.CheckResult{
			Name:    "docstrings",
			Passed:  false,
			Message: "no docstrings found on functions: " + strings.Join(missing, ", "),
		}
	}
	return model.CheckResult{
		Name:    "docstrings",
		Passed:  true,
		Message: fmt.Sprintf("%d of %d functions documented", len(functions)-len(missing), len(functions)),
	}
}

// syntaxValid parses text and reports whether the tree is error-free.
func syntaxValid(ctx context.Context, text string) (bool, string) {
	analysis := analyze(ctx, []byte(text))
	if !analysis.parsed {
		return false, "parser failure"
	}
	if !analysis.syntaxOK {
		return false, "syntax errors detected"
	}
	return true, ""
}

// analyze parses code with the Python grammar and walks the tree once,
// collecting per-function facts the checks consume.
func analyze(ctx context.Context, code []byte) codeAnalysis {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, code)
	if err != nil {
		return codeAnalysis{}
	}
	defer tree.Close()

	root := tree.RootNode()
	analysis := codeAnalysis{
		parsed:   true,
		syntaxOK: !root.HasError(),
	}
	collectFunctions(root, code, &analysis)
	return analysis
}

func collectFunctions(node *sitter.Node, code []byte, analysis *codeAnalysis) {
	if node.Type() == "function_definition" {
		analysis.functions = append(analysis.functions, inspectFunction(node, code))
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		collectFunctions(node.NamedChild(i), code, analysis)
	}
}

// inspectFunction reads one function_definition node. A function counts as
// annotated when any parameter is typed or a return type is present, and as
// documented when its body opens with a string expression.
func inspectFunction(node *sitter.Node, code []byte) functionInfo {
	info := functionInfo{name: "<anonymous>"}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "identifier":
			info.name = child.Content(code)
		case "parameters":
			if hasTypedParameter(child) {
				info.annotated = true
			}
		case "type":
			// Return type annotation.
			info.annotated = true
		case "block":
			info.documented = hasDocstring(child)
		}
	}
	return info
}

func hasTypedParameter(params *sitter.Node) bool {
	for i := 0; i < int(params.NamedChildCount()); i++ {
		switch params.NamedChild(i).Type() {
		case "typed_parameter", "typed_default_parameter":
			return true
		}
	}
	return false
}

func hasDocstring(block *sitter.Node) bool {
	if block.NamedChildCount() == 0 {
		return false
	}
	first := block.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return false
	}
	return first.NamedChild(0).Type() == "string"
}

func checkResult(name string, passed bool, passMsg, failMsg string) model.CheckResult {
	msg := passMsg
	if !passed {
		msg = failMsg
	}
	return model.CheckResult{Name: name, Passed: passed, Message: msg}
}
