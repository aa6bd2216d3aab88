package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupBookRoutes injects the books resource api endpoints.
func (api *APIHandler) SetupBookRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.GET("/status", m.public(api.Status))
	router.GET("/api/book", m.public(api.GetAllBooks))
	router.POST("/api/book", m.public(api.CreateBook))
	router.PUT("/api/book/:id", m.public(api.UpdateBook))
	router.DELETE("/api/book/:id", m.public(api.DeleteOneBook))
	return router
}

// SetupPageRoutes injects the html pages endpoints.
func (api *APIHandler) SetupPageRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.GET("/", m.public(api.Index))
	router.GET("/book", m.public(api.BookPage))
	router.POST("/book", m.public(api.CreateBookForm))
	router.POST("/book/:id", m.public(api.UpdateBookForm))
	router.POST("/book/:id/delete", m.public(api.DeleteBookForm))
	router.GET("/login", m.public(api.LoginPage))
	router.POST("/login", m.public(api.Login))
	router.GET("/register", m.public(api.RegisterPage))
	router.POST("/register", m.public(api.Register))
	return router
}
