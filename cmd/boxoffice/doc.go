// Command boxoffice is the operator CLI for the monthly box-office ranking.
// It runs the same pipeline as the HTTP service directly against TMDB and
// prints the result as a table, CSV, or JSON.
package main
