// Package roster loads the CSV user roster and answers credential lookups.
//
// The roster is an external artifact maintained outside this module; its
// column names (user_id, password, role) and plaintext secrets are the
// contract, not a choice this package gets to make. Lookups are exact and
// case-sensitive on both identity and secret.
package roster
