// Package tui es el panel de chat para la terminal, construido sobre
// bubbletea. Lee el estado de los stores de service mediante suscripciones
// y dispara las operaciones como comandos asincronos.
//
// Atajos:
//
//	Enter       envia la pregunta o ejecuta el comando /...
//	Tab         cambia la pestaña lateral (agentes, historial, documentos)
//	PgUp/PgDn   desplaza la conversacion
//	Esc         limpia la salida del ultimo comando
//	Ctrl+C      sale
package tui
