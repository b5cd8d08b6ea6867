// Package list implements an intrusive free-block list: the next/prev
// pointers live inside the free bytes themselves rather than in a
// separately allocated node, addressed by uint32 offsets into a shared
// backing buffer.
package list

import "encoding/binary"

// NodeSize is the number of bytes a list node overlays at the start of
// a free block. A backing leaf size smaller than this cannot hold a
// node and must not be used with this package.
const NodeSize = 8

// List is a doubly-linked list of free blocks, threaded through mem.
// The zero value is an empty list. Offset 0 is reserved as the "no
// block" sentinel: every List is constructed over a buffer whose first
// bytes are occupied by allocator metadata, so address 0 is never a
// valid free block.
type List struct {
	mem  []byte
	head uint32
}

// New returns an empty list backed by mem.
func New(mem []byte) *List {
	return &List{mem: mem}
}

// Empty reports whether the list has no entries.
func (l *List) Empty() bool {
	return l.head == 0
}

func (l *List) next(addr uint32) uint32 {
	return binary.LittleEndian.Uint32(l.mem[addr:])
}

func (l *List) setNext(addr, next uint32) {
	binary.LittleEndian.PutUint32(l.mem[addr:], next)
}

func (l *List) prev(addr uint32) uint32 {
	return binary.LittleEndian.Uint32(l.mem[addr+4:])
}

func (l *List) setPrev(addr, prev uint32) {
	binary.LittleEndian.PutUint32(l.mem[addr+4:], prev)
}

// Push inserts addr at the head of the list.
func (l *List) Push(addr uint32) {
	l.setNext(addr, l.head)
	l.setPrev(addr, 0)
	if l.head != 0 {
		l.setPrev(l.head, addr)
	}
	l.head = addr
}

// Pop removes and returns the head of the list. Pop on an empty list
// returns 0 and must not be called; callers check Empty first.
func (l *List) Pop() uint32 {
	addr := l.head
	l.head = l.next(addr)
	if l.head != 0 {
		l.setPrev(l.head, 0)
	}
	return addr
}

// Remove unlinks addr from the list. addr must currently be a member;
// removing an address that isn't on the list is undefined behavior.
func (l *List) Remove(addr uint32) {
	p, n := l.prev(addr), l.next(addr)
	if p != 0 {
		l.setNext(p, n)
	} else {
		l.head = n
	}
	if n != 0 {
		l.setPrev(n, p)
	}
}

// Count walks the list and returns its length, or an error if it
// exceeds limit without terminating — a corrupted list (a cycle, or a
// stray pointer into unrelated memory) would otherwise spin forever.
func (l *List) Count(limit int) (int, error) {
	n := 0
	for addr := l.head; addr != 0; addr = l.next(addr) {
		n++
		if n > limit {
			return n, errListTooLong
		}
	}
	return n, nil
}

// Each calls fn for every address currently on the list, head first.
// fn must not mutate the list while iterating.
func (l *List) Each(fn func(addr uint32)) {
	for addr := l.head; addr != 0; addr = l.next(addr) {
		fn(addr)
	}
}
