// Copyright 2025 The weenix-go Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package vm implements the page-fault dispatch boundary component of
// spec.md section 4.6: given a faulting address and the kind of access that
// caused the fault, find the containing mapping, check its permissions,
// resolve the backing page frame (honoring copy-on-write on a write fault),
// and install the mapping. The page frame allocator, the page table, and
// any demand-paging eviction policy are out of scope (spec.md's Non-goals
// exclude "demand-paging policy"); this package only implements the
// dispatch sequence itself, against the PageTable and MemObject interfaces
// below.
package vm

import (
	"github.com/weenix-go/weenix/internal/errno"
)

// Perm is a bitmask of the accesses a mapping allows.
type Perm int

const (
	PermRead Perm = 1 << iota
	PermWrite
	PermExec
)

// Access is the kind of memory access that caused a fault.
type Access int

const (
	AccessNone Access = iota
	AccessRead
	AccessWrite
	AccessExec
)

// allowed reports whether perm permits the given access, mirroring
// has_valid_permissions: PermNone (the zero Perm) permits nothing, a read
// fault needs PermRead, a write fault needs PermWrite, an exec fault needs
// PermExec; AccessNone is never a legal request.
func (perm Perm) allowed(access Access) bool {
	switch access {
	case AccessRead:
		return perm&PermRead != 0
	case AccessWrite:
		return perm&PermWrite != 0
	case AccessExec:
		return perm&PermExec != 0
	default:
		return false
	}
}

// MemObject resolves the page backing one page-aligned offset into a
// mapping, the seam a concrete demand-paging/shadow-object policy
// implements. ResolveFrame returns an opaque frame identifier; write
// reports whether the fault was a write (so a copy-on-write object can make
// a private copy before returning it), and must mark the returned frame
// dirty itself when write is true.
type MemObject interface {
	ResolveFrame(pageOffset int64, write bool) (frame int, err error)
}

// VMA is one mapped region of an address space: a half-open page range
// [Start, End), the permissions it grants, and the memory object backing
// it.
type VMA struct {
	Start, End int64 // page numbers, not byte addresses
	Perm       Perm
	Object     MemObject
}

func (vma *VMA) contains(page int64) bool {
	return page >= vma.Start && page < vma.End
}

// AddressSpace is one process's sorted-by-construction set of mappings.
// spec.md scopes out mount-table/paging policy dynamics, so this is just a
// lookup structure, not a full vmmap with insert/remove/clone operations.
type AddressSpace struct {
	areas []*VMA
}

// NewAddressSpace returns an address space containing the given mappings.
func NewAddressSpace(areas ...*VMA) *AddressSpace {
	return &AddressSpace{areas: areas}
}

// Lookup returns the VMA containing page, or nil if no mapping covers it.
func (as *AddressSpace) Lookup(page int64) *VMA {
	for _, vma := range as.areas {
		if vma.contains(page) {
			return vma
		}
	}
	return nil
}

// PageTable is the mapping-installation seam a concrete architecture's page
// tables implement; Install and FlushTLB both operate on a single page.
type PageTable interface {
	Install(page int64, frame int, perm Perm) error
	FlushTLB(page int64)
}

// Dispatch is handle_pagefault: look up the VMA containing page, kill the
// process (via kill, e.g. proc.Table.Exit(int(errno.EFAULT))) with EFAULT if
// none is found or its permissions disallow access, otherwise resolve the
// backing frame, install it in pt with PermRead plus PermWrite if the fault
// was a write, and flush the TLB for that page. kill is only ever called on
// failure, with EFAULT as the status; Dispatch still returns EFAULT itself so a
// caller that does not want to terminate the whole process (e.g. a test)
// can observe the failure directly.
func Dispatch(as *AddressSpace, pt PageTable, page int64, access Access, kill func(status int)) error {
	vma := as.Lookup(page)
	if vma == nil || !vma.Perm.allowed(access) {
		kill(int(errno.EFAULT))
		return errno.EFAULT
	}

	frame, err := vma.Object.ResolveFrame(page-vma.Start, access == AccessWrite)
	if err != nil {
		kill(int(errno.EFAULT))
		return errno.EFAULT
	}

	perm := Perm(PermRead)
	if access == AccessWrite {
		perm |= PermWrite
	}
	if err := pt.Install(page, frame, perm); err != nil {
		kill(int(errno.EFAULT))
		return errno.EFAULT
	}
	pt.FlushTLB(page)
	return nil
}
