// Package server exposes the upload page and JSON API over HTTP. Uploads are
// accepted with 202 and processed in the background; clients poll the
// transcript resource for progress and fetch the finished text as a download.
package server
