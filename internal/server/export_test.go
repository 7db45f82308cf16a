package server

var Wrap = wrap
