package config

import (
	"os"
	"strings"
)

func envBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// EnforceSingleShop rejects creating a second SHOP location.
// The movement engine resolves "the" SHOP by type, so more than one makes it ambiguous.
//
// Set via env (default on):
// - ENFORCE_SINGLE_SHOP=false
func EnforceSingleShop() bool {
	return envBool("ENFORCE_SINGLE_SHOP", true)
}

// VerifyInvoicePhotos checks that every invoice photo path exists in the bucket before a receive is recorded.
//
// Set via env:
// - VERIFY_INVOICE_PHOTOS=true
func VerifyInvoicePhotos() bool {
	return envBool("VERIFY_INVOICE_PHOTOS", false)
}

// SignPrivatePhotoURLs makes transaction history return short-lived signed URLs for private invoice photos.
//
// Set via env:
// - SIGN_PRIVATE_PHOTO_URLS=true
func SignPrivatePhotoURLs() bool {
	return envBool("SIGN_PRIVATE_PHOTO_URLS", false)
}

// InventoryEventsTopic is the Pub/Sub topic movement events are published to. Empty disables publishing.
func InventoryEventsTopic() string {
	return strings.TrimSpace(os.Getenv("INVENTORY_EVENTS_TOPIC"))
}
