package handlers

import (
	"fmt"
	"html"
	"net/http"
)

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%[1]s</title>
</head>
<body>
<main>
<h1>%[1]s</h1>
<p>%[2]s</p>
</main>
</body>
</html>
`

func page(status int, title, message string) *PageResponse {
	return &PageResponse{
		Status:       status,
		ContentType:  "text/html; charset=utf-8",
		CacheControl: "no-store",
		Body:         fmt.Appendf(nil, pageTemplate, html.EscapeString(title), html.EscapeString(message)),
	}
}

func notFoundPage(code string) *PageResponse {
	return page(http.StatusNotFound, "Link not found",
		fmt.Sprintf("The short link %q does not exist.", code))
}

func expiredPage(code string) *PageResponse {
	return page(http.StatusGone, "Link expired",
		fmt.Sprintf("The short link %q has expired or was deactivated.", code))
}

func errorPage() *PageResponse {
	return page(http.StatusInternalServerError, "Something went wrong",
		"We could not process this link. Please try again later.")
}

func redirect(location string) *PageResponse {
	return &PageResponse{
		Status:       http.StatusFound,
		Location:     location,
		CacheControl: "no-store",
	}
}
