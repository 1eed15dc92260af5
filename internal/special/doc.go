// Package special evaluates the special functions of the scattering lab:
// associated Legendre functions, spherical harmonics at real and complex
// angles, and spherical Bessel functions of both kinds at complex argument.
//
// Harmonics of every degree below a truncation order are stored in a
// padded [Table]. Row l holds the 2l+1 orders m in [-l, l] at column m+l.
package special
