// Package model defines the request and response models shared by the
// handler and business layers.
package model

// NamespaceCreateRequest is the body of POST /namespaces.
type NamespaceCreateRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// NamespaceInfo describes one namespace. DocumentCount is queried live from
// the backing index, not cached.
type NamespaceInfo struct {
	Name          string `json:"name"`
	DocumentCount int64  `json:"document_count"`
}

// NamespaceListResponse is the body of GET /namespaces.
type NamespaceListResponse struct {
	Namespaces []NamespaceInfo `json:"namespaces"`
	Total      int             `json:"total"`
}
