package list

import "errors"

var errListTooLong = errors.New("list: exceeded count limit, possible cycle")
