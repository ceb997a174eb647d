package app

import (
	"log"
	"mime"
)

// Product images are served by extension; some base images lack webp.
func init() {
	ensureMimeType(".webp", "image/webp")
	ensureMimeType(".jpeg", "image/jpeg")
}

func ensureMimeType(ext, typ string) {
	if mime.TypeByExtension(ext) != "" {
		return
	}
	if err := mime.AddExtensionType(ext, typ); err != nil {
		log.Printf("app: failed to register MIME type for %s: %v", ext, err)
	}
}
