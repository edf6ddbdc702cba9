package web

import "html"

func configurationErrorPage(message string) string {
	return `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Embedded AI TA - configuration error</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 4rem auto; padding: 0 1rem; }
.error { border: 1px solid #e5484d; background: #fff0f0; color: #8c1d20; padding: 1rem; border-radius: 6px; }
</style>
</head>
<body>
<h1>Embedded AI TA</h1>
<div class="error">` + html.EscapeString(message) + `</div>
</body>
</html>
`
}
