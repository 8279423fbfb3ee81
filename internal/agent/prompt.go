package agent

import "fmt"

// BuildPrompt wraps the user's request in the generation instructions. The
// rules mirror what the JSON schema cannot enforce: complete file contents,
// a runnable setup sequence, and a conservative default stack.
func BuildPrompt(request string) string {
	return fmt.Sprintf(`SYSTEM:
You are an automated code generation engine.
You must return ONLY valid JSON that matches the required schema.
Do NOT include explanations, markdown, comments, or extra text.
Do NOT wrap output in code blocks.
If you cannot satisfy a field, still return valid JSON with best effort.

TASK:
Generate a complete, working software application for the following request:

%q

OUTPUT FORMAT RULES:
Your entire response must be a single JSON object with these fields:
- folderName (string, kebab-case)
- description (string)
- files (array of { path, content })
- setupCommands (array of strings)
No other fields are allowed.

APPLICATION RULES:
1. The application must run after following setupCommands.
2. All files must have FULL, COMPLETE content.
3. Include package.json if using Node, React, or any framework.
4. Include README.md covering what the app does, setup, and how to run it.
5. Include .gitignore when applicable.
6. All imports and file paths must be correct.
7. No TODOs, placeholders, or missing logic.
8. Prefer a minimal, simple tech stack unless the user explicitly asks otherwise.

DEFAULT TECH STACK (when the user does not specify):
- Frontend apps: HTML + CSS + vanilla JS
- Backend APIs: Node.js + Express
- Fullstack: Express + a simple frontend
Avoid React, Vite, Next.js, Docker, or databases unless requested.

SETUP COMMAND RULES:
- First command must be: cd <folderName>
- Followed by install commands if needed
- Final command must start the app (npm run dev, node index.js, or open index.html)

FINAL CHECK before responding:
- All files referenced actually exist in files[]
- setupCommands will work on a fresh system
- JSON is valid and complete

Return ONLY the JSON object.`, request)
}
