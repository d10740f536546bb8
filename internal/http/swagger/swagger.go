package swagger

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	apicontract "github.com/tuanvumaihuynh/product-catalog/api-contract"
)

const (
	DocsPath = "/docs"
	SpecPath = "/docs/openapi.yml"

	swaggerUIVersion = "5.29.3"
)

// Register serves Swagger UI at DocsPath backed by the embedded contract at
// SpecPath.
func Register(r chi.Router) {
	page := []byte(docsPage("Product Catalog API", SpecPath))
	spec := apicontract.GetSpecBytes()

	r.Get(DocsPath, serveBytes("text/html; charset=utf-8", page))
	r.Get(SpecPath, serveBytes("application/yaml", spec))
}

func serveBytes(contentType string, body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		//nolint:errcheck
		w.Write(body)
	}
}

func docsPage(title, specPath string) string {
	const cdn = "https://unpkg.com/swagger-ui-dist@" + swaggerUIVersion

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>%[1]s</title>
  <link rel="stylesheet" href="%[2]s/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="%[2]s/swagger-ui-bundle.js" crossorigin></script>
<script>
  window.onload = () => {
    window.ui = SwaggerUIBundle({ url: '%[3]s', dom_id: '#swagger-ui', deepLinking: true });
  };
</script>
</body>
</html>
`, title, cdn, specPath)
}
