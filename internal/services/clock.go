package services

import "time"

// Подменяется в тестах.
var timeNow = time.Now
