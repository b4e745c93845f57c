// Package mpmock provides mocks of the multipart interfaces.
package mpmock

//go:generate go tool mockgen -destination=visitor.go -package=mpmock github.com/ghettovoice/multipart Visitor
