// Package encryption provides password-based file encryption using AES-256 in CBC mode.
//
// A container is a 16-byte salt, a 16-byte IV and the PKCS#7-padded ciphertext.
// The key is derived with PBKDF2-HMAC-SHA256 (100 000 iterations) and never stored.
// There is no integrity tag: a wrong password is detected only through invalid padding,
// and is indistinguishable from a corrupted file.
//
// Files are streamed in bounded chunks and outputs are written atomically.
// The Processor runs many files concurrently.
package encryption
