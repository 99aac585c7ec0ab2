// Package ebook reads descriptive metadata from ebook files.
//
// The package handles four container families:
//
//  1. EPUB: a zip archive whose META-INF/container.xml points at an OPF
//     package document with Dublin Core elements
//  2. FB2: a FictionBook XML document with a <description> header
//  3. PDF: the document Info dictionary (Title, Author, Subject, Producer,
//     CreationDate)
//  4. MOBI/AZW/AZW3: a PalmDOC database with a MOBI header and EXTH records
//
// # Usage
//
//	meta, err := ebook.Read("/books/in/dune.epub")
//	if errors.Is(err, ebook.ErrNoMetadata) {
//	    // the file is fine, it just describes nothing
//	}
//
// The XML shapes are declared in the dto subpackage.
package ebook
