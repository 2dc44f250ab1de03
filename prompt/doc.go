// Package prompt loads and renders the templates sent to the LLM provider.
//
// Templates are plain text/template files. The loader searches project
// directories first so deployments can override the embedded defaults:
//
//	loader := prompt.NewLoader(projectDir)
//	text, err := loader.Render("analyze_requirement", map[string]any{
//	    "Title": "Add SSO login",
//	    "Body":  rawRequirement,
//	})
package prompt
