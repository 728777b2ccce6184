package handlers

import (
	"io"
	"net/http"
)

const homePage = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Cloud Vault</title></head>
<body style="font-family:Arial;padding:30px">
  <h1>Cloud Vault</h1>
  <h3>API:</h3>
  <ul>
    <li><a href="/api/files">/api/files</a> - files (search, category, type)</li>
    <li>POST /api/upload - upload a file (multipart field "file")</li>
    <li>POST /api/register - register</li>
    <li>POST /api/login - log in</li>
    <li>GET /api/admin/stats - statistics (header x-user-id of an admin)</li>
  </ul>
</body>
</html>
`

func HomeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, homePage)
}
