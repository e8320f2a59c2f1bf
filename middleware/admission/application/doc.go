// Package application contém as decisões de admissão, sem net/http.
package application
