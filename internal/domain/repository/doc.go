// Package repository define las entidades de la plataforma y los contratos
// de persistencia que consume el core de sesión.
//
// Las implementaciones viven en internal/store/pg (PostgreSQL) e
// internal/store/memory (tests y desarrollo local).
//
// Convenciones:
//   - Context siempre es el primer parámetro.
//   - Los tiempos se guardan y comparan en UTC; el "now" lo pasa el caller.
//   - Toda mutación condicional (intentos OTP, rotación, revocación) es una
//     única operación atómica del store, nunca un read-then-write del caller.
package repository
