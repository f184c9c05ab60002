// Package fuzztests houses Go fuzz harnesses that exercise the yulgen
// pipeline (unit file -> resolver -> IR generation). Its goal is to smoke test
// robustness and guard against panics or hangs on arbitrary inputs.
//
// Назначение: загружать байты как unit-файл и прогонять их через driver.Build.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
//
// Зависимости: internal/driver, internal/settings.

package fuzztests
