package client

import "google.golang.org/genai"

// ApplicationSchema constrains structured generation to the application
// descriptor shape: folder name, description, file list, setup commands.
func ApplicationSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"folderName": {
				Type:        genai.TypeString,
				Description: "Short kebab-case folder name for the generated project",
			},
			"description": {
				Type:        genai.TypeString,
				Description: "One-paragraph summary of what the application does",
			},
			"files": {
				Type:        genai.TypeArray,
				Description: "Every file the project needs, with complete contents",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"path": {
							Type:        genai.TypeString,
							Description: "File path relative to the project folder",
						},
						"content": {
							Type:        genai.TypeString,
							Description: "Full file contents",
						},
					},
					Required: []string{"path", "content"},
				},
			},
			"setupCommands": {
				Type:        genai.TypeArray,
				Description: "Shell commands to run inside the folder to set the project up",
				Items:       &genai.Schema{Type: genai.TypeString},
			},
		},
		Required: []string{"folderName", "description", "files"},
	}
}
