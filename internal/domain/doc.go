// Package domain contains the core business entities of the todo service:
// users, their todos and the validation rules that apply to both. It has no
// knowledge of HTTP, SQL or any other delivery or storage mechanism.
package domain
