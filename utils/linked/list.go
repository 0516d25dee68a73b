// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package linked

// ListElement is an element of a linked list.
type ListElement[T any] struct {
	next, prev *ListElement[T]
	list       *List[T]
	Value      T
}

// Next returns the next element or nil.
func (e *ListElement[T]) Next() *ListElement[T] {
	if p := e.next; e.list != nil && p != &e.list.sentinel {
		return p
	}
	return nil
}

// Prev returns the previous element or nil.
func (e *ListElement[T]) Prev() *ListElement[T] {
	if p := e.prev; e.list != nil && p != &e.list.sentinel {
		return p
	}
	return nil
}

// List is a doubly linked list whose elements are allocated by the caller.
// This allows elements to be reused after removal.
//
// The zero value is an empty list ready to use.
type List[T any] struct {
	sentinel ListElement[T]
	length   int
}

func (l *List[T]) lazyInit() {
	if l.sentinel.next == nil {
		l.sentinel.next = &l.sentinel
		l.sentinel.prev = &l.sentinel
	}
}

// Len returns the number of elements in l.
func (l *List[_]) Len() int {
	return l.length
}

// Front returns the element at the front of l, or nil if l is empty.
func (l *List[T]) Front() *ListElement[T] {
	if l.length == 0 {
		return nil
	}
	return l.sentinel.next
}

// Back returns the element at the back of l, or nil if l is empty.
func (l *List[T]) Back() *ListElement[T] {
	if l.length == 0 {
		return nil
	}
	return l.sentinel.prev
}

// Remove removes e from l if e is in l.
func (l *List[T]) Remove(e *ListElement[T]) {
	if e.list != l {
		return
	}

	e.prev.next = e.next
	e.next.prev = e.prev
	e.next = nil
	e.prev = nil
	e.list = nil
	l.length--
}

// PushBack inserts e at the back of l. If e is already in a list, this is a
// no-op.
func (l *List[T]) PushBack(e *ListElement[T]) {
	if e.list != nil {
		return
	}
	l.lazyInit()

	at := l.sentinel.prev
	e.prev = at
	e.next = &l.sentinel
	e.list = l
	at.next = e
	l.sentinel.prev = e
	l.length++
}

// MoveToBack moves e to the back of l if e is in l.
func (l *List[T]) MoveToBack(e *ListElement[T]) {
	if e.list != l || l.sentinel.prev == e {
		return
	}

	l.Remove(e)
	l.PushBack(e)
}
